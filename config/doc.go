// Package config loads the server configuration.
package config
