/*
Package cash defines the token accounts used to hold escrowed funds.

An account holds a single kind of token (its mint) and is controlled
by exactly one owner address. The owner can be a plain signer or a
derived authority that only another extension can assert. Balances
never go below zero and an account may only be closed once drained.
*/
package cash
