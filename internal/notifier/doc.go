// Package notifier forwards new-event notifications to downstream channels.
//
// Every channel implements Notifier. Available channels print to stdout
// (dry run), message a Telegram chat, post to Twitter, or open the rendered
// history page in a browser. Multi fans a batch out to several channels.
package notifier
