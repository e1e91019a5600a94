//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"syscall/js"

	"github.com/hack-pad/hackpadfs/indexeddb"

	"github.com/kittclouds/kinship/internal/config"
	"github.com/kittclouds/kinship/internal/logging"
	"github.com/kittclouds/kinship/internal/session"
	"github.com/kittclouds/kinship/internal/store"
	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/geom"
	"github.com/kittclouds/kinship/pkg/namesearch"
)

// Version info
const Version = "1.0.0"

const (
	databaseName = "kinship"
	storeDir     = "kv"
)

// Global state
var (
	sess    *session.Session
	kv      *store.WriteBehind
	journal *logging.Journal
	logger  *slog.Logger
	canvas  *painter
)

func main() {
	println("[Kinship] WASM Ready v" + Version)

	js.Global().Set("Kinship", js.ValueOf(map[string]interface{}{
		"version": js.FuncOf(getVersion),
		"init":    js.FuncOf(initialize),
		"flush":   js.FuncOf(flush),

		// Input events. Each returns an Effect as JSON.
		"pointerDown": js.FuncOf(pointerDown),
		"pointerMove": js.FuncOf(pointerMove),
		"pointerUp":   js.FuncOf(pointerUp),
		"wheel":       js.FuncOf(wheel),
		"click":       js.FuncOf(click),
		"doubleClick": js.FuncOf(doubleClick),
		"contextMenu": js.FuncOf(contextMenu),
		"touchStart":  js.FuncOf(touchStart),
		"touchMove":   js.FuncOf(touchMove),
		"touchEnd":    js.FuncOf(touchEnd),
		"resize":      js.FuncOf(resize),

		// Menu and form commands
		"select":             js.FuncOf(selectPerson),
		"person":             js.FuncOf(getPerson),
		"savePerson":         js.FuncOf(savePerson),
		"addChild":           js.FuncOf(addChild),
		"addParents":         js.FuncOf(addParents),
		"addSibling":         js.FuncOf(addSibling),
		"addSpouse":          js.FuncOf(addSpouse),
		"addFile":            js.FuncOf(addFile),
		"removeFile":         js.FuncOf(removeFile),
		"deletePerson":       js.FuncOf(deletePerson),
		"startRelationship":  js.FuncOf(startRelationship),
		"cancelRelationship": js.FuncOf(cancelRelationship),
		"link":               js.FuncOf(link),
		"unlink":             js.FuncOf(unlink),
		"startFocusPick":     js.FuncOf(startFocusPick),
		"cancelFocusPick":    js.FuncOf(cancelFocusPick),
		"focus":              js.FuncOf(focusOn),
		"unfocus":            js.FuncOf(unfocus),
		"autoLayout":         js.FuncOf(autoLayout),
		"centerView":         js.FuncOf(centerView),
		"importTree":         js.FuncOf(importTree),
		"exportTree":         js.FuncOf(exportTree),
		"find":               js.FuncOf(find),
		"logs":               js.FuncOf(logs),
		"clearLogs":          js.FuncOf(clearLogs),
	}))

	select {}
}

// getVersion returns the module version
func getVersion(this js.Value, args []js.Value) interface{} {
	return Version
}

// =============================================================================
// Startup
// =============================================================================

// initialize opens IndexedDB, restores the tree and binds the canvas.
// Args: [canvasId string]
// Returns: Promise resolving to a result JSON string
func initialize(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return errorResult("requires 1 arg: canvasId")
	}
	el := js.Global().Get("document").Call("getElementById", args[0].String())
	if el.IsNull() {
		return errorResult("canvas not found: " + args[0].String())
	}

	// IndexedDB only answers once control returns to the event loop, so the
	// loading happens on a goroutine behind a Promise.
	return promise(func() (interface{}, error) {
		if sess != nil {
			return successResult("already initialized"), nil
		}
		restored, err := open(el)
		if err != nil {
			return nil, err
		}
		if restored {
			return successResult("restored " + strconv.Itoa(sess.Tree().Len()) + " persons"), nil
		}
		return successResult("initialized"), nil
	})
}

func open(el js.Value) (bool, error) {
	cfg, err := config.Load("")
	if err != nil {
		return false, err
	}

	idb, err := indexeddb.NewFS(context.Background(), databaseName, indexeddb.Options{})
	if err != nil {
		return false, fmt.Errorf("failed to create idb fs: %w", err)
	}
	backend, err := store.NewFSStore(idb, storeDir)
	if err != nil {
		return false, err
	}

	kv = store.NewWriteBehind(backend, nil)
	if err := kv.Preload(""); err != nil {
		kv.Close()
		return false, err
	}

	journal = logging.NewJournal(kv, cfg.Log.JournalSize)
	journalErr := journal.Load()
	logger = logging.New(cfg.Log, journal)
	log := logger.With("component", "WASM")
	if journalErr != nil {
		log.Warn("Discarding unreadable journal", "error", journalErr)
	}

	names, err := namesearch.Open(idb, namesearch.DefaultPath)
	if err != nil {
		log.Warn("Rebuilding name index", "error", err)
		names, _ = namesearch.Open(nil, "")
	}

	canvas = newPainter(el)
	metrics := cfg.Node.Metrics()
	metrics.Measurer = canvasMeasurer{ctx: canvas.ctx}
	w, h := canvas.size()

	s := session.New(family.NewTree(logger), session.Options{
		Store:      kv,
		Names:      names,
		Metrics:    metrics,
		Style:      cfg.Style,
		Width:      w,
		Height:     h,
		Logger:     logger,
		Redraw:     canvas.requestRedraw,
		Background: func(fn func()) { go fn() },
	})
	canvas.scene = s.Scene

	restored, err := s.Load()
	if err != nil {
		// A broken snapshot must not lock the user out; start empty.
		log.Error("Failed to restore tree", "error", err)
	}
	sess = s
	canvas.requestRedraw()
	return restored, nil
}

// flush resolves once every pending write has reached IndexedDB.
// Returns: Promise
func flush(this js.Value, args []js.Value) interface{} {
	if kv == nil {
		return errorResult("not initialized")
	}
	return promise(func() (interface{}, error) {
		if err := kv.Flush(); err != nil {
			return nil, err
		}
		return successResult("flushed"), nil
	})
}

// =============================================================================
// Input events
// =============================================================================

// pointerDown: [x, y, button]
func pointerDown(this js.Value, args []js.Value) interface{} {
	return withPoint(args, 3, func(at geom.Point) session.Effect {
		return sess.PointerDown(at, args[2].Int())
	})
}

// pointerMove: [x, y]
func pointerMove(this js.Value, args []js.Value) interface{} {
	return withPoint(args, 2, sess.PointerMove)
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return errorResult("not initialized")
	}
	return effectResult(sess.PointerUp())
}

// wheel: [deltaY]
func wheel(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return errorResult("not initialized")
	}
	if len(args) < 1 {
		return errorResult("requires 1 arg: deltaY")
	}
	return effectResult(sess.Wheel(args[0].Float()))
}

// click: [x, y]
func click(this js.Value, args []js.Value) interface{} {
	return withPoint(args, 2, sess.Click)
}

// doubleClick: [x, y]
func doubleClick(this js.Value, args []js.Value) interface{} {
	return withPoint(args, 2, sess.DoubleClick)
}

// contextMenu: [x, y]
func contextMenu(this js.Value, args []js.Value) interface{} {
	return withPoint(args, 2, sess.ContextMenu)
}

// touchStart: [touches Array<{x, y}>]
func touchStart(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return errorResult("not initialized")
	}
	return effectResult(sess.TouchStart(touchPoints(args)))
}

// touchMove: [touches Array<{x, y}>]
func touchMove(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return errorResult("not initialized")
	}
	return effectResult(sess.TouchMove(touchPoints(args)))
}

// touchEnd: [x, y] of the lifted finger
func touchEnd(this js.Value, args []js.Value) interface{} {
	return withPoint(args, 2, sess.TouchEnd)
}

// resize: [width, height]
func resize(this js.Value, args []js.Value) interface{} {
	if sess == nil {
		return errorResult("not initialized")
	}
	if len(args) < 2 {
		return errorResult("requires 2 args: width, height")
	}
	sess.Resize(args[0].Float(), args[1].Float())
	return successResult("resized")
}

// =============================================================================
// Commands
// =============================================================================

// selectPerson: [id string]
func selectPerson(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 1, func() interface{} {
		return done(sess.Select(args[0].String()), "selected")
	})
}

// getPerson: [id string]
// Returns: person JSON for the edit form
func getPerson(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 1, func() interface{} {
		rec, ok := sess.Tree().Record(args[0].String())
		if !ok {
			return errorResult(session.ErrUnknownPerson.Error())
		}
		return jsonResult(rec)
	})
}

// savePerson: [id string ("" creates), formJSON string]
func savePerson(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 2, func() interface{} {
		var in session.PersonInput
		if err := json.Unmarshal([]byte(args[1].String()), &in); err != nil {
			return errorResult("invalid form json: " + err.Error())
		}
		p, err := sess.SavePerson(args[0].String(), in)
		if err != nil {
			return errorResult(err.Error())
		}
		return successResult(p.ID())
	})
}

// addChild: [firstName, lastName, gender]
func addChild(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 3, func() interface{} {
		return created(sess.AddChild(args[0].String(), args[1].String(), family.ParseGender(args[2].String())))
	})
}

// addParents: [fatherFirst, fatherLast, motherFirst, motherLast]
func addParents(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 4, func() interface{} {
		father, mother, err := sess.AddParents(args[0].String(), args[1].String(), args[2].String(), args[3].String())
		if err != nil {
			return errorResult(err.Error())
		}
		return jsonResult(map[string]string{"father": father.ID(), "mother": mother.ID()})
	})
}

// addSibling: [firstName, lastName, gender]
func addSibling(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 3, func() interface{} {
		return created(sess.AddSibling(args[0].String(), args[1].String(), family.ParseGender(args[2].String())))
	})
}

// addSpouse: [firstName, lastName]
func addSpouse(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 2, func() interface{} {
		return created(sess.AddSpouse(args[0].String(), args[1].String()))
	})
}

// addFile: [id, name, type, dataURL]
func addFile(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 4, func() interface{} {
		file := family.Attachment{Name: args[1].String(), Type: args[2].String(), Data: args[3].String()}
		return done(sess.AddFile(args[0].String(), file), "attached")
	})
}

// removeFile: [id, index]
func removeFile(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 2, func() interface{} {
		return done(sess.RemoveFile(args[0].String(), args[1].Int()), "removed")
	})
}

// deletePerson: [id] or [] for the selected person
func deletePerson(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		if len(args) == 0 {
			return done(sess.DeleteSelected(), "deleted")
		}
		return done(sess.Delete(args[0].String()), "deleted")
	})
}

// startRelationship: [mode "child"|"parent"|"spouse"]
func startRelationship(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 1, func() interface{} {
		mode, err := session.ParseRelation(args[0].String())
		if err != nil {
			return errorResult(err.Error())
		}
		return done(sess.StartRelationship(mode), "pick a person")
	})
}

func cancelRelationship(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		sess.CancelRelationship()
		return successResult("cancelled")
	})
}

// link: [mode, sourceId, targetId]
func link(this js.Value, args []js.Value) interface{} {
	return withRelation(args, sess.Link, "linked")
}

// unlink: [mode, sourceId, targetId]
func unlink(this js.Value, args []js.Value) interface{} {
	return withRelation(args, sess.Unlink, "unlinked")
}

func startFocusPick(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		sess.StartFocusPick()
		return successResult("pick a person")
	})
}

func cancelFocusPick(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		sess.CancelFocusPick()
		return successResult("cancelled")
	})
}

// focusOn: [id]
func focusOn(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 1, func() interface{} {
		return done(sess.Focus(args[0].String()), "focused")
	})
}

func unfocus(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		sess.Unfocus()
		return successResult("unfocused")
	})
}

func autoLayout(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		sess.AutoLayout()
		return successResult("arranged")
	})
}

func centerView(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		sess.CenterView()
		return successResult("centered")
	})
}

// importTree: [snapshotJSON string]
func importTree(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 1, func() interface{} {
		if err := sess.Import([]byte(args[0].String())); err != nil {
			return errorResult(err.Error())
		}
		return successResult("imported " + strconv.Itoa(sess.Tree().Len()) + " persons")
	})
}

// exportTree returns the snapshot JSON.
func exportTree(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		data, err := sess.Export()
		if err != nil {
			return errorResult(err.Error())
		}
		return string(data)
	})
}

// find: [query string, k int]
// Returns: JSON array of person ids, best first
func find(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 2, func() interface{} {
		ids := sess.Find(args[0].String(), args[1].Int())
		if ids == nil {
			ids = []string{}
		}
		return jsonResult(ids)
	})
}

// logs returns the journal as a JSON array.
func logs(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		data, err := journal.Export()
		if err != nil {
			return errorResult(err.Error())
		}
		return string(data)
	})
}

func clearLogs(this js.Value, args []js.Value) interface{} {
	return withArgs(args, 0, func() interface{} {
		return done(journal.Clear(), "cleared")
	})
}
