package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title Ottowrite Analytics API
// @version 0.1
// @description Interactive documentation for the document save, snapshot, and analytics job API surface.
// @contact.name Ottowrite Maintainers
// @contact.url https://github.com/tempandmajor/ottowrite-sub007
// @BasePath /
