// Package events defines the typed session event contract.
//
// Event kinds are grouped by receiver-facing namespaces:
//
//   - words.*
//   - session.*
//   - transcript.*
//   - function_call.*
//
// words events
//
//   - WordDetected (words.detected): a target word was confirmed; carries the
//     word in its original form.
//   - WordsCompleted (words.completed): the last remaining word was confirmed.
//     Emitted at most once per session, right after the matching
//     WordDetected.
//
// session events
//
//   - SessionStateChanged (session.state_changed): conversation state
//     transition with the number of words still remaining.
//
// transcript events
//
//   - Transcript (transcript.user, transcript.assistant): recognised speech of
//     either party.
//
// function_call events
//
//   - FunctionCallReceived (function_call.received): the engine invoked a
//     declared function.
//   - FunctionCallAnswered (function_call.answered): instruction text was sent
//     back to the engine.
//   - FunctionCallIgnored (function_call.ignored): the call was dropped.
//
// Events implementing [SideChannel] are also published to room observers as
// [ServerMessage] envelopes:
//
//	{"type": "word_detected", "payload": "sakura"}
//	{"type": "words_complete", "payload": "tsuki"}
//	{"type": "session_state", "payload": {"state": "in_progress", "remaining": 1}}
//	{"type": "transcript", "payload": {"role": "user", "text": "..."}}
//
// The learner's client sends {"type": "client-ready"} once it can play audio.
// Rooms keep that message while the learner stays and hand it to a bot that
// joins afterwards.
package events
