// Package feed defines the harvested item model and the small set of pure
// functions that turn raw post fields into items and items into chat messages.
//
// A post carries its own sequence number as the first token of its body, e.g.
//
//	#1234 something happened today
//
// ParseSequence extracts 1234, StripSequence returns "something happened today"
// and RenderMessage produces the message delivered to every subscribed channel.
package feed
