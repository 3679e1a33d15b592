// Package command interprets inbound chat messages for the device.
//
// Every message is attributed a role by exact endpoint match against the
// configured owner, family and neighborhood endpoints. Commands are
// "/<name>[,<deviceID>]"; a command naming a different device is ignored
// without reply, which is how several devices share one chat channel.
// Owner-only commands answered from any other role get an explicit denial.
//
// While an editing session is open, all traffic from its endpoint bypasses
// command parsing and feeds the session instead, so values can be typed as
// plain text. Interactive menus are built as Markup trees and serialized
// only at the delivery edge.
package command
