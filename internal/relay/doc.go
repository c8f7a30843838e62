// Package relay pumps bytes between a local reader/writer pair and an
// established tunnel connection.
package relay
