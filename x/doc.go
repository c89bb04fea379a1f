/*
Package x contains the extensions of the custody application.

Extensions implement common functionality (Handler, Decorator,
etc.) and are combined together in package app. Authentication is
shared through the Authenticator interface defined here, so every
extension can accept both signatures and derived authorities.
*/
package x
