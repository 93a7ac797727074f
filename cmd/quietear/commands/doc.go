// Package commands implements the quietear command line
package commands
