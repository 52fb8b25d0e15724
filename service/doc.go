// Package service implements the restaurant operations: authentication,
// the menu and order intake.
//
// It enforces authorization and maps failures to a small error taxonomy,
// decoupled from network transports like gRPC.
package service
