/*
Package orm provides an easy to use db wrapper

Break state space into prefixed sections called Buckets.
* Each bucket contains only one type of model.
* It has a primary index, the key given when saving.
* Models are validated before every write.
* Buckets can be exposed to the query router.
*/
package orm
