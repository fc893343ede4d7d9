// Package connectors holds the transcript sources and video catalogs.
// The filesystem connector yields transcript files and the youtube
// connector supplies video metadata used to enrich them.
package connectors
