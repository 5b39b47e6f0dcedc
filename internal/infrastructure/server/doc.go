// Package server assembles the bridge, its HTTP listeners and their
// lifecycle.
package server
