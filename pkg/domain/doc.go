/*
Package domain defines the core types of the Ngena dialog engine.

It holds the vocabulary shared by every layer: dialog states and transition targets,
the per-user Session, History entries and navigation-control records, the normalized
IncomingMessage, the validator Result contract, the Reply payload that selects one
outbound shape, and the rendered Envelope handed to the transport.

It has no dependencies on adapters; storage, transport and rendering live in their own
packages and speak in these types.
*/
package domain
