package normalize

import "github.com/paulmach/orb"

// ChunkLine splits line into contiguous, non-overlapping pieces of at most
// maxPoints positions. A trailing piece with fewer than two positions is
// dropped, as is a whole line that is that short. maxPoints below 2 disables
// splitting.
func ChunkLine(line orb.LineString, maxPoints int) []orb.LineString {
	if len(line) < 2 {
		return nil
	}
	if maxPoints < 2 || len(line) <= maxPoints {
		return []orb.LineString{line}
	}

	chunks := make([]orb.LineString, 0, (len(line)+maxPoints-1)/maxPoints)
	for start := 0; start < len(line); start += maxPoints {
		end := min(start+maxPoints, len(line))
		if end-start < 2 {
			break
		}
		chunks = append(chunks, line[start:end:end])
	}
	return chunks
}
