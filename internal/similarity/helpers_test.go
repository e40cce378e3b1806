package similarity

import (
	"github.com/kailas-cloud/tourdex/internal/domain/corpus"
	"github.com/kailas-cloud/tourdex/internal/domain/document"
	"github.com/kailas-cloud/tourdex/internal/domain/search/result"
	"github.com/kailas-cloud/tourdex/internal/text"
)

func testDoc(id, name, caption, province string, tags ...string) document.Document {
	return document.Reconstruct(document.Fields{
		ID: id, Name: name, Caption: caption, Province: province, Tags: tags,
	})
}

func testSnapshot() *corpus.Snapshot {
	return corpus.NewSnapshot("test-v1", []document.Document{
		testDoc("grand-palace", "Grand Palace", "The royal palace complex in Bangkok with Wat Phra Kaew",
			"Bangkok", "palace", "temple"),
		testDoc("wat-arun", "Wat Arun", "Temple of Dawn beside the river", "Bangkok", "temple", "river"),
		testDoc("doi-suthep", "วัดพระธาตุดอยสุเทพ", "วัดบนดอยที่เชียงใหม่", "เชียงใหม่", "วัด", "ภูเขา"),
		testDoc("nimman", "ถนนนิมมานเหมินท์", "ย่านคาเฟ่ เชียงใหม่", "เชียงใหม่", "คาเฟ่"),
		testDoc("patong", "Patong Beach", "Busy beach with nightlife", "Phuket", "beach", "nightlife"),
		testDoc("khao-san", "Khao San Road", "Backpacker street in central Bangkok", "Bangkok", "street"),
		testDoc("railay", "Railay Beach", "Limestone cliffs and climbing", "Krabi", "beach", "climbing"),
	})
}

func query(threshold float64, terms ...string) Query {
	q := text.Result{Joined: terms[0], Tokens: []string{terms[0]}}
	return Query{Terms: Terms(terms[0], q, terms[1:]), Threshold: threshold}
}

func ids(matches []result.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.DocumentID
	}
	return out
}

func newAliasEntry() *corpus.Entry {
	snap := corpus.NewSnapshot("aliases", []document.Document{
		document.Reconstruct(document.Fields{
			ID: "wat-arun", Name: "วัดอรุณ", Aliases: []string{"Temple of Dawn", "Wat Arun"},
		}),
	})
	return snap.Entry(0)
}
