//go:build js && wasm

package main

import (
	"encoding/json"
	"strconv"
	"syscall/js"

	"github.com/kittclouds/kinship/internal/session"
	"github.com/kittclouds/kinship/pkg/family"
	"github.com/kittclouds/kinship/pkg/geom"
)

// =============================================================================
// Argument guards
// =============================================================================

// withArgs runs fn once the session exists and at least n args were passed.
func withArgs(args []js.Value, n int, fn func() interface{}) interface{} {
	if sess == nil {
		return errorResult("not initialized")
	}
	if len(args) < n {
		return errorResult("requires " + strconv.Itoa(n) + " args")
	}
	return fn()
}

// withPoint reads a screen point from args[0:2] and returns fn's Effect.
func withPoint(args []js.Value, n int, fn func(geom.Point) session.Effect) interface{} {
	return withArgs(args, n, func() interface{} {
		return effectResult(fn(geom.Pt(args[0].Float(), args[1].Float())))
	})
}

// withRelation parses [mode, source, target] for link and unlink.
func withRelation(args []js.Value, fn func(session.Relation, string, string) error, msg string) interface{} {
	return withArgs(args, 3, func() interface{} {
		mode, err := session.ParseRelation(args[0].String())
		if err != nil {
			return errorResult(err.Error())
		}
		return done(fn(mode, args[1].String(), args[2].String()), msg)
	})
}

// touchPoints reads a JS array of {x, y} objects.
func touchPoints(args []js.Value) []geom.Point {
	if len(args) < 1 || args[0].Type() != js.TypeObject {
		return nil
	}
	list := args[0]
	pts := make([]geom.Point, list.Length())
	for i := range pts {
		t := list.Index(i)
		pts[i] = geom.Pt(t.Get("x").Float(), t.Get("y").Float())
	}
	return pts
}

// =============================================================================
// Results
// =============================================================================

// Helper: Create error result
func errorResult(msg string) interface{} {
	result := map[string]interface{}{
		"error": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

// Helper: Create success result
func successResult(msg string) interface{} {
	result := map[string]interface{}{
		"success": msg,
	}
	jsonBytes, _ := json.Marshal(result)
	return string(jsonBytes)
}

func jsonResult(v any) interface{} {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return errorResult(err.Error())
	}
	return string(jsonBytes)
}

func effectResult(e session.Effect) interface{} {
	return jsonResult(e)
}

// done maps a command error to a result.
func done(err error, msg string) interface{} {
	if err != nil {
		return errorResult(err.Error())
	}
	return successResult(msg)
}

// created reports the id of a new person.
func created(p *family.Person, err error) interface{} {
	if err != nil {
		return errorResult(err.Error())
	}
	return successResult(p.ID())
}

// promise runs fn on a goroutine and settles a JS Promise with its result.
// Blocking JS APIs such as IndexedDB may only be awaited this way.
func promise(fn func() (interface{}, error)) interface{} {
	var executor js.Func
	executor = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolve, reject := args[0], args[1]
		go func() {
			defer executor.Release()
			v, err := fn()
			if err != nil {
				reject.Invoke(js.Global().Get("Error").New(err.Error()))
				return
			}
			resolve.Invoke(v)
		}()
		return nil
	})
	return js.Global().Get("Promise").New(executor)
}
