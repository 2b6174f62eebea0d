package scraper

import (
	"encoding/json"
	"fmt"
)

// rawSearchResult is a search hit as extracted from the DOM
type rawSearchResult struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// rawPostContent is the post text as extracted from the DOM
type rawPostContent struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	Author string `json:"author"`
}

// rawComment is a comment as extracted from the DOM
type rawComment struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Permalink string `json:"permalink"`
}

var extractSearchJS = fmt.Sprintf(`
	(function() {
		const results = [];
		const seen = new Set();
		const push = (url, title) => {
			if (!url || seen.has(url) || !url.includes('/comments/')) return;
			seen.add(url);
			results.push({ url, title: (title || '').trim() });
		};

		document.querySelectorAll('shreddit-post').forEach(el => {
			push(el.getAttribute('permalink'), el.getAttribute('post-title'));
		});
		document.querySelectorAll(%q).forEach(el => {
			push(el.getAttribute('href'), el.textContent);
		});

		return results;
	})()
`, SearchPostTitle)

var extractPostJS = fmt.Sprintf(`
	(function() {
		const post = document.querySelector(%q);
		const titleEl = document.querySelector(%q);
		const bodyEl = document.querySelector(%q);
		return {
			title: (titleEl?.textContent || post?.getAttribute('post-title') || '').trim(),
			body: (bodyEl?.innerText || '').trim(),
			author: post?.getAttribute('author') || ''
		};
	})()
`, PostElement, PostTitle, PostBody)

var extractCommentsJS = fmt.Sprintf(`
	(function() {
		const results = [];
		document.querySelectorAll(%q).forEach(el => {
			try {
				const body = el.querySelector(%q);
				const time = el.querySelector(%q);
				results.push({
					id: el.getAttribute('thingid') || '',
					author: el.getAttribute('author') || '',
					content: body?.innerText || '',
					timestamp: time?.getAttribute('ts') || el.querySelector('time')?.getAttribute('datetime') || '',
					permalink: el.getAttribute('permalink') || ''
				});
			} catch (e) {
				console.error('Error extracting comment:', e);
			}
		});
		return results;
	})()
`, CommentElement, CommentBody, CommentTime)

// markReplyTargetJS tags the first comment whose text contains target
func markReplyTargetJS(target string) string {
	quoted, _ := json.Marshal(target)
	return fmt.Sprintf(`
		(function() {
			const needle = %s.toLowerCase().trim();
			document.querySelectorAll('[%s]').forEach(el => el.removeAttribute('%s'));
			for (const el of document.querySelectorAll(%q)) {
				const body = el.querySelector(%q);
				const text = (body?.innerText || '').toLowerCase();
				if (needle && text.includes(needle)) {
					el.setAttribute('%s', '1');
					el.scrollIntoView({ block: 'center' });
					return true;
				}
			}
			return false;
		})()
	`, quoted, replyTargetAttr, replyTargetAttr, CommentElement, CommentBody, replyTargetAttr)
}

// clickReplyJS presses the reply button of the tagged comment. The action
// row renders inside a shadow root on newer layouts.
var clickReplyJS = fmt.Sprintf(`
	(function() {
		const el = document.querySelector('%s[%s="1"]');
		if (!el) return false;
		const find = root => Array.from(root.querySelectorAll('button'))
			.find(b => (b.textContent || '').trim().toLowerCase() === 'reply');
		let btn = find(el);
		if (!btn) {
			const row = el.querySelector('shreddit-comment-action-row');
			if (row && row.shadowRoot) btn = find(row.shadowRoot);
		}
		if (!btn) return false;
		btn.click();
		return true;
	})()
`, CommentElement, replyTargetAttr)
