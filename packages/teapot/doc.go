// Package teapot is the request facade: one Client type issuing GET, POST,
// PUT and DELETE calls with JSON payloads, whether it talks to a live server
// or to fixture files.
//
// Every call returns a *Handle immediately. The completion runs once, on the
// call's delivery context, with an http.Result that is either *http.Success
// or *http.Failure. Cancelling the Handle before delivery means the
// completion never runs.
//
//	client := teapot.NewClient("https://api.example.com")
//	client.Get("users?page=2", func(r http.Result) {
//		switch r := r.(type) {
//		case *http.Success:
//			fmt.Println(r.Payload().Get("users"))
//		case *http.Failure:
//			fmt.Println(r.Error)
//		}
//	})
//
// NewMockClient answers the same calls from a directory of JSON fixtures.
package teapot
