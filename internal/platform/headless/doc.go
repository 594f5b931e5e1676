// Package headless provides in-process implementations of the platform
// collaborators: an image-backed frame source, an in-memory canvas surface and
// a ticker-driven animation driver. It backs the CLI and MCP server and needs
// no windowing system.
package headless
