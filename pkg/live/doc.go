// Package live streams collection changes to browsers over WebSocket.
//
// The server owns one engine per session. Mutations flow from source
// pollers through the session's scheduler; after each flush the
// changed collections reconcile and the recorded host operations are
// encoded as binary patch frames and written to the connection.
//
// The wire format is length-delimited frames with a 4-byte header
// (type, flags, payload length). Patch payloads address nodes by the
// numeric ids the host factory assigned, so a client can mirror the
// tree with a flat id map and no diffing of its own.
//
// A disconnected session stays resumable for the configured TTL. On
// reconnect the server replays the missed patch frames from the
// session's history ring, or rebuilds the containers from the live
// host trees when the history no longer reaches back far enough.
package live
