package main

import (
	"github.com/julienschmidt/httprouter"
)

// SetupBookRoutes injects book related api endpoints.
func (api *APIHandler) SetupBookRoutes(router *httprouter.Router, m *MiddlewareMap) *httprouter.Router {
	router.RedirectTrailingSlash = true
	router.GET("/", m.public(api.Index))
	router.GET("/status", m.public(api.Status))
	router.GET("/api/health", m.public(api.Health))
	router.POST("/api/books", m.public(api.CreateBook))
	router.GET("/api/books", m.public(api.GetAllBooks))
	router.GET("/api/books/:id", m.public(api.GetOneBook))
	router.PUT("/api/books/:id", m.public(api.UpdateBook))
	router.DELETE("/api/books/:id", m.public(api.DeleteOneBook))
	return router
}
