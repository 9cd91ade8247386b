// Package scaffold lays out the build directory: it clones the public and
// admin site sources and renders the per-site config/config.php files that
// carry each site's routing secrets, tripwire pages and form fields.
package scaffold
