// Package transcode turns raw process output into text.
//
// Encodings are looked up by name. The Node-style names used by callers
// (utf8, utf16le, latin1, ascii, hex, base64, ...) are recognised first,
// anything else is resolved through the IANA charset registry. All decoders
// are streaming: multi-byte sequences split across reads are carried over to
// the next read.
package transcode
