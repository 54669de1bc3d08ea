/*
Package ports defines the driven and driving ports (interfaces) of nala.

These interfaces decouple the machine model from external implementations,
allowing it to be loaded from various document stores and its exported decks
to be cached in different backends.

# Key Interfaces

  - ElementLoader: Responsible for loading element documents and the layout and section definitions.
  - Watchable: Signals that the element documents changed and the model should be reloaded.
  - DeckStore: Responsible for persisting exported decks.
  - DistributedLocker: Provides distributed locking so replicas do not render the same deck twice.
  - Machine: The service HTTP and MCP adapters drive.
*/
package ports
