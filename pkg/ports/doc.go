/*
Package ports defines the driven ports (interfaces) for the Ngena dialog engine.

These interfaces decouple the dispatcher from external implementations, allowing
it to work with various key-value backends, record stores and messaging transports.

# Key Interfaces

  - KVStore: Persists session, history, bookmark and navigation-control values with TTL.
  - RecordStore: Read and write access to domain records (users, courses, payments...).
  - Transport: Delivers a rendered envelope and returns a receipt.
  - PaymentClient: Creates payment orders with a third-party provider.
  - DistributedLocker: Serializes dispatch cycles for one user across replicas.
*/
package ports
