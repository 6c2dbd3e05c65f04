package server

//go:generate swag init -g internal/server/server.go -o docs

// @title WebGuard API
// @version 0.1
// @description Interactive documentation for the WebGuard threat analysis API surface.
// @contact.name WebGuard Maintainers
// @contact.url https://github.com/webguardai/webguard
// @BasePath /
