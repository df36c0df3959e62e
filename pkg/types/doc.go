// Package types defines the contact entity, sort criteria, view state and
// events, the store contracts consumed by the view model, and the standard
// error values shared by every contactbook package.
package types
