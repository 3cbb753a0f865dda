// Package models keeps the process wide registry of known models.
package models

import (
	"github.com/casualjim/mobileuse/internal/registry"
	"github.com/casualjim/mobileuse/provider"
)

// Global holds every model created through a provider package, keyed by model name.
var Global = registry.New[provider.Model]()

// GetOrAdd returns the registered model, creating it with modelF on first use.
// Provider packages call it so that every caller asking for a name shares one client.
func GetOrAdd(name string, modelF func() provider.Model) provider.Model {
	m, _ := Global.GetOrAdd(name, modelF)
	return m
}
