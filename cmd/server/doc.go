// Pitlane - F1 Usenet auto-grab pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package main is the entry point for the Pitlane server process.

Pitlane watches an F1 season's schedule, scores Usenet release candidates
against an operator's quality preferences, and auto-grabs the best hit for
each session once it clears a configurable threshold.

# Application Architecture

The server implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("pitlane")
	├── DataSupervisor ("data-layer")
	│   └── provider.RefreshService (C3, periodic schedule re-pull)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── scheduler tick service (C9)
	│   └── scheduler poll service (C9, WaitingDownload polling)
	└── APISupervisor ("api-layer")
	    └── unused; no outer surface (HTTP/UI is a non-goal)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and a config file
 2. Logging: zerolog with JSON/console output modes
 3. Database: embedded DuckDB store (C2)
 4. Domain components: indexer pool (C4), downloader registry (C7),
    notification dispatcher (C8), search engine (C5), round search cache
    (C6), scheduler (C9), schedule importer (C3); the settings manager
    (C10) and operator command surface (C11) are not constructed here
 5. Supervisor tree: Suture v4 process supervision (C9's tick/poll loops,
    C3's periodic refresh loop)

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest
priority wins): environment variables > config file > struct defaults.
See internal/config for the full set of PITLANE_* environment variables.

# Signal Handling

The server handles graceful shutdown on SIGINT and SIGTERM:

 1. Cancels the root context, stopping the tick/poll/refresh loops
 2. Waits up to the configured shutdown timeout for in-flight work
 3. Reports any services that failed to stop within that window
 4. Closes the store

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/operator: The plain Go command surface an outer layer drives
  - internal/scheduler: The C9 tick/poll state machine
*/
package main
