// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec holds the CBOR configuration shared by every internal
// protocol in this module, currently the bridge control socket.
//
// The encoder uses Core Deterministic Encoding (RFC 8949 §4.2), so the
// same value always produces the same bytes. The decoder ignores
// unknown fields, letting a newer bridge answer an older client.
//
//	encoder := codec.NewEncoder(conn)
//	decoder := codec.NewDecoder(conn)
//
// Types carried only as CBOR use `cbor` struct tags.
package codec
