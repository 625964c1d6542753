package types

// LineEnding terminates every line of a response head, regardless of platform.
const LineEnding = "\r\n"
