/*
Package dispatch implements the session-scoped state machine that turns one inbound
message into one outbound reply.

Each cycle resolves the user's current state (applying phrase overrides, "back"
navigation and the unregistered-user guard), runs the state's validator, persists the
next state, sends the rendered reply and records the turn in the user's history.

A cycle that cannot find a row or validator for the resolved state, or whose validator
fails, sends a generic "invalid response" text and leaves session and history as they
were, so the user can retry against the same state.
*/
package dispatch
