// Package core contains the shared primitives of the groupplan framework:
// the Agent capability interface, immutable transcript Events with their
// polymorphic content Parts, the Session transcript container with its round
// counter and termination flag, and the Run/Tool contexts threaded through a
// conversation.
//
// Everything in this package is transport and provider neutral; model
// adapters and tools depend on core, never the other way around.
package core
