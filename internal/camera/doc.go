// Package camera provides still capture for the appliance. The actual
// encoding is done by an external capture helper that writes the latest
// frame to a spool path; FrameSource reads it on demand and Supervisor
// optionally keeps the helper process alive.
package camera
