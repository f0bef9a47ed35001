package forum

import "github.com/sakif/forumfront/internal/model"

// AdjustLikes adds delta to a loaded topic's like count, never going below
// zero. It returns the new count and the delta actually applied; ok is false
// when the topic is not in the list (replies are never tracked here).
func (f *Forum) AdjustLikes(target model.LikeTarget, id int64, delta int) (count, applied int, ok bool) {
	if target != model.LikeTopic {
		return 0, 0, false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.topics {
		if f.topics[i].ID == id {
			count, applied = clampAdd(f.topics[i].LikeCount, delta)
			f.topics[i].LikeCount = count
			return count, applied, true
		}
	}
	return 0, 0, false
}

func clampAdd(n, delta int) (result, applied int) {
	result = max(n+delta, 0)
	return result, result - n
}
