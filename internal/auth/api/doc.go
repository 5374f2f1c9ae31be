// Package authapi wires HTTP auth endpoints to identity and session
// services: register, login, refresh, logout, verify, plus the request
// guard protecting mutation routes elsewhere in the server.
package authapi
