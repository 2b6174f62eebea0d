package redditapi

import "encoding/json"

// listing is Reddit's generic paginated envelope
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []thing `json:"children"`
	} `json:"data"`
}

type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Selftext  string `json:"selftext"`
	Author    string `json:"author"`
	Permalink string `json:"permalink"`
}

type commentData struct {
	ID         string          `json:"id"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	CreatedUTC float64         `json:"created_utc"`
	Permalink  string          `json:"permalink"`
	Replies    json.RawMessage `json:"replies"`
}

// flattenComments walks the reply tree depth-first. "more" stubs and
// deleted comments are dropped.
func flattenComments(children []thing) []commentData {
	var out []commentData
	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}
		var cd commentData
		if err := json.Unmarshal(child.Data, &cd); err != nil {
			continue
		}
		if cd.Body != "" && cd.Body != "[deleted]" && cd.Body != "[removed]" {
			out = append(out, cd)
		}
		// replies is "" when empty, otherwise a listing
		if len(cd.Replies) > 0 && cd.Replies[0] == '{' {
			var nested listing
			if err := json.Unmarshal(cd.Replies, &nested); err == nil {
				out = append(out, flattenComments(nested.Data.Children)...)
			}
		}
	}
	return out
}
