// Package memory provides in-process implementations of the storage ports.
// They back dry runs and tests; nothing survives the process.
package memory
