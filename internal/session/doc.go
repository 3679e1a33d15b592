// Package session implements the guarded field-editing flow: select a
// field, submit a value, review the change, confirm or cancel. At most one
// session exists process-wide and only the endpoint that opened it may
// advance it; anyone else sees "no active session" whether or not one is
// open. A session left idle past its timeout is reset on the next touch or
// by the periodic sweep.
package session
