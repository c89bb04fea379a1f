/*
Package custody defines interfaces used throughout the app, such as: storage,
transactions, handlers, conditions and addresses. It also contains helpers to
work with context and authentication.

Look into this package to get a brief overview of design decisions made around
interfaces and extension building blocks. Extensions live under x/, the
escrow program being the most important one.
*/
package custody
