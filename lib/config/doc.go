// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for pageant-bridge.
//
// Configuration is loaded from a single file named either by the
// PAGEANT_BRIDGE_CONFIG environment variable (via [Load]) or by a
// --config flag (via [LoadFile]). There is no automatic file search.
// Values absent from the file keep their [Default].
//
// Path fields (bridge.listen when the network is unix, and
// bridge.control_socket) support ${HOME}, ${VAR}, and ${VAR:-default}
// expansion after loading. ${HOME} resolves through os.UserHomeDir, so
// it works on Windows where HOME is usually unset.
//
// Key exports:
//
//   - [Config] with its Agent, Bridge, and Log sections
//   - [Default], [Load], [LoadFile], and [Config.Validate]
//   - [Config.AgentConfig], which builds the pageant.Config for Open
package config
