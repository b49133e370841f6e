// Package appconfig loads server settings from obstacle.yaml, OBSTACLE_*
// environment variables and built-in defaults.
package appconfig
