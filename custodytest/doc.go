/*
Package custodytest provides mocks and helpers for testing handlers,
decorators and the application without a running node.
*/
package custodytest
