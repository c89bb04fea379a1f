/*
Package utils contains decorators shared by all extensions: logging,
panic recovery, metrics and savepoints.
*/
package utils
