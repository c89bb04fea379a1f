/*
Package app contains standard implementations of a number of components.

It connects the handlers, decorators and stores of custody extensions
into an abci.Application: ChainDecorators builds the middleware stack,
Router dispatches messages by their path, CommitStore keeps the check
and deliver caches over a CommitKVStore and StoreApp with BaseApp
translate between ABCI requests and custody calls.
*/
package app
