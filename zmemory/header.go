package zmemory

// headerAuth describes write authorization for a single header byte.
// A nil entry in the table means the byte may never be written through
// the authorized APIs (interpreter_set_header/game_set_header); direct
// byte writes to the header always fail regardless of this table, per
// spec: "direct byte writes to header are fatal."
type headerAuth struct {
	minVersion  uint8
	gameWrite   bool
	interpWrite bool
}

// headerAuthTable is the fixed 64-entry authorization table indexed by
// header byte offset (0x00-0x3F). Grounded on the Z-Machine standard's
// header table (§11) and on zcore.Core's header field list, which
// enumerates every field this interpreter maintains but never enforced
// write permission on (every write there carries a "TODO - add
// validation" comment). Most header bytes are interpreter-set at load
// time and read-only to the running story; the handful of fields a game
// is allowed to adjust at runtime (primarily the Flags 2 word, which a
// story uses to request transcription, fixed-pitch printing, and to
// declare undo/mouse/menu support) are marked gameWrite.
var headerAuthTable [64]*headerAuth

func auth(lo, hi int, a headerAuth) {
	for i := lo; i <= hi; i++ {
		v := a
		headerAuthTable[i] = &v
	}
}

func init() {
	// Flags 1 (0x01): interpreter populates capability bits at load;
	// never game-writable.
	auth(0x01, 0x01, headerAuth{minVersion: 1, interpWrite: true})

	// Flags 2 (0x10-0x11): the game may toggle transcription (bit 0),
	// fixed-pitch request (bit 1, v3+), and (v5+) request/declare support
	// for undo (bit 4), mouse (bit 5), colour (bit 3), menus (bit 8 of
	// the low byte's high half - modelled as part of 0x11), sound effects
	// (bit 7). The interpreter may also write these to report capability.
	auth(0x10, 0x11, headerAuth{minVersion: 1, gameWrite: true, interpWrite: true})

	// Release number, high-memory/PC/dictionary/object/globals/static
	// pointers (0x02-0x0F): fixed at load, interpreter-only (in practice
	// never rewritten after load, but the authorization model allows it
	// for a restore that replays a different release).
	auth(0x02, 0x0F, headerAuth{minVersion: 1, interpWrite: true})

	// Serial number (0x12-0x17): interpreter-only, set at load.
	auth(0x12, 0x17, headerAuth{minVersion: 1, interpWrite: true})

	// Abbreviations table base (0x18-0x19), file length/checksum
	// (0x1A-0x1D): interpreter-only.
	auth(0x18, 0x1D, headerAuth{minVersion: 1, interpWrite: true})

	// Interpreter number/version (0x1E-0x1F): interpreter-only, declares
	// host identity to the story.
	auth(0x1E, 0x1F, headerAuth{minVersion: 4, interpWrite: true})

	// Screen dimensions, font metrics (0x20-0x27): interpreter sets these
	// at startup and on a resize; games never write them.
	auth(0x20, 0x27, headerAuth{minVersion: 4, interpWrite: true})

	// Routine/string offsets (0x28-0x2B, v6 only): interpreter-only.
	auth(0x28, 0x2B, headerAuth{minVersion: 6, interpWrite: true})

	// Default background/foreground colour (0x2C-0x2D, v5+): the game
	// may request a new default via set_colour side effects written back
	// to the header; the interpreter also writes these at startup.
	auth(0x2C, 0x2D, headerAuth{minVersion: 5, gameWrite: true, interpWrite: true})

	// Terminating characters table address (0x2E-0x2F, v5+):
	// interpreter-only (set once by the loader, read by sread).
	auth(0x2E, 0x2F, headerAuth{minVersion: 5, interpWrite: true})

	// Output stream 3 width (0x30-0x31, v6 only): interpreter-only.
	auth(0x30, 0x31, headerAuth{minVersion: 6, interpWrite: true})

	// Standard revision number (0x32-0x33): interpreter-only, declares
	// which revision of the standard this host claims to implement.
	auth(0x32, 0x33, headerAuth{minVersion: 1, interpWrite: true})

	// Alphabet table address (0x34-0x35, v5+): set once by the story at
	// compile time; not writable at runtime by either party through
	// these APIs (present in the table only so out-of-range reads are
	// still well-defined).
	headerAuthTable[0x34] = nil
	headerAuthTable[0x35] = nil

	// Header extension table address (0x36-0x37, v5+): interpreter-only.
	auth(0x36, 0x37, headerAuth{minVersion: 5, interpWrite: true})

	// 0x38-0x3F: reserved/player login name (v6) or unused; left
	// unauthorized.
}
