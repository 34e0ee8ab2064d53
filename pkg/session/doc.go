/*
Package session implements the per-user dialog state kept between dispatch cycles.

Store reads and writes the session record and its derived caches (navigation control,
quiz session) on top of a ports.KVStore, using the key layout in keys.go. Manager
serializes work on one user, optionally across replicas through a distributed locker.
*/
package session
