// Package grid models a rows x cols board of 4-connected cells with walls.
package grid
