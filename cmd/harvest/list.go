package main

import (
	"fmt"
	"slices"
	"strings"
)

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	var crawls []string
	for _, ctrl := range deps.Set.Controllers {
		crawls = append(crawls, ctrl.Name())
	}

	var recipes []string
	for _, name := range deps.Registry.Harvesters() {
		if !slices.Contains(crawls, name) {
			recipes = append(recipes, name)
		}
	}

	fmt.Fprintf(deps.Stdout, "recipes:    %s\n", strings.Join(recipes, ", "))
	fmt.Fprintf(deps.Stdout, "crawls:     %s\n", strings.Join(crawls, ", "))
	fmt.Fprintf(deps.Stdout, "formatters: %s\n", strings.Join(deps.Registry.Formatters(), ", "))
	return nil
}
