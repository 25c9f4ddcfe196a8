package handlers

import (
	"encoding/json"
	"net/http"

	"mirage/internal/infra"
	"mirage/internal/service"
)

// App is the handler container holding the services the HTTP surface
// depends on.
type App struct {
	Logger infra.Logger
	Jobs   *service.Generator
	Relay  *service.Relay
}

// NewApp creates the handler container.
func NewApp(logger infra.Logger, jobs *service.Generator, relay *service.Relay) *App {
	return &App{Logger: logger, Jobs: jobs, Relay: relay}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, msg string) {
	a.json(w, code, map[string]string{"error": msg})
}
