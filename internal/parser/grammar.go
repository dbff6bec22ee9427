package parser

import (
	"regexp"
	"strings"

	"github.com/Conceptual-Machines/magda-edit/internal/command"
)

// Pattern fragments. Input is already normalized, so only lower case, digits and the
// characters kept by command.Normalize appear.
const (
	num       = `\d+(?:\.\d+)?`
	signedNum = `[+-]?\d+(?:\.\d+)?`
	timecode  = `\d{1,2}:\d{1,2}(?::\d{1,2})?(?:\.\d+)?`
	timeValue = `(?:` + timecode + `|` + num + `)`
	timeUnit  = `(?:milliseconds?|millisecs?|msecs?|ms|seconds?|secs?|s|minutes?|mins?|m|hours?|hrs?|h)`
	dbUnit    = `(?:dbfs|db|decibels?)`
	pctUnit   = `(?:%|percent)`
	freqUnit  = `(?:khz|hz|k)`
)

// rule binds a kind to its ordered patterns and the logic that reads their captures
type rule struct {
	kind     command.Kind
	patterns []*regexp.Regexp
	unless   *regexp.Regexp // vetoes the whole kind when set and matched
	extract  func(c captures) ([]command.Parameter, error)
}

func re(parts ...string) *regexp.Regexp {
	return regexp.MustCompile(strings.Join(parts, ""))
}

// removal matches instructions that take an effect away rather than add it
func removal(effect string) *regexp.Regexp {
	return re(`\b(?:remove|cut|reduce|eliminate|kill|strip|drop|lose|get\s+rid\s+of|take\s+out|turn\s+off|disable)`,
		`\s+(?:the\s+|all\s+(?:the\s+|of\s+the\s+)?|some\s+(?:of\s+the\s+)?|any\s+)?(?:\w+\s+)?(?:`, effect, `)\b`,
		`|\b(?:no|without|less)\s+(?:\w+\s+)?(?:`, effect, `)\b`)
}

// grammar is walked in order. Kinds follow command.Kinds; the first pattern to match wins.
var grammar = []rule{
	{
		kind: command.KindTrim,
		patterns: []*regexp.Regexp{
			re(`\b(?:cut|remove|delete|trim|chop|drop)\s+(?:off\s+)?(?:the\s+)?`,
				`(?P<pos>first|opening|beginning|initial|last|final|ending|end)\s+`,
				`(?P<num>`, timeValue, `)\s*(?P<unit>`, timeUnit, `)?\b`),
			re(`\b(?:cut|remove|delete|trim|chop|drop)\s+(?:off\s+)?(?P<num>`, timeValue, `)\s*(?P<unit>`, timeUnit, `)?`,
				`\s+(?:from|off|at)\s+(?:the\s+)?(?P<pos>beginning|start|end)\b`),
			re(`\bkeep\s+(?:only\s+)?(?:the\s+)?(?P<keep>first)\s+(?P<num>`, timeValue, `)\s*(?P<unit>`, timeUnit, `)?\b`),
			re(`\b(?P<verb>cut|remove|delete|trim|keep|extract|crop|chop)\b.*?\bfrom\s+`,
				`(?P<start>`, timeValue, `)\s*(?P<sunit>`, timeUnit, `)?\s+(?:to|until|till|through)\s+`,
				`(?P<end>`, timeValue, `)\s*(?P<eunit>`, timeUnit, `)?\b`),
		},
		extract: extractTrim,
	},
	{
		kind: command.KindVolume,
		patterns: []*regexp.Regexp{
			re(`\b(?P<verb>increase|raise|boost|turn\s+up|bring\s+up|pump\s+up|amplify|lower|decrease|reduce|turn\s+down|bring\s+down|cut|drop|attenuate)`,
				`\s+(?:the\s+)?(?:overall\s+)?(?:volume|gain|level|loudness)`,
				`(?:\s+(?:by|of)\s+(?P<num>`, signedNum, `)\s*(?P<unit>`, dbUnit, `|`, pctUnit, `))?`),
			re(`\b(?:turn|bring|crank)\s+(?:the\s+|it\s+)?(?:volume\s+|gain\s+)?(?P<verb>up|down)\b`,
				`(?:\s+(?:by\s+)?(?P<num>`, signedNum, `)\s*(?P<unit>`, dbUnit, `|`, pctUnit, `))?`),
			re(`\b(?:make\s+(?:it|this|the\s+\w+)\s+)?(?P<verb>louder|quieter|softer)\b`,
				`(?:\s+by\s+(?P<num>`, signedNum, `)\s*(?P<unit>`, dbUnit, `|`, pctUnit, `))?`),
			re(`(?:^|\b(?:set|change|adjust)\s+(?:the\s+)?)(?:volume|gain)\s+(?:change\s+)?(?:to\s+|by\s+|of\s+)?`,
				`(?P<num>[+-]`, num, `)\s*(?P<unit>`, dbUnit, `)`),
		},
		extract: extractVolume,
	},
	{
		kind: command.KindFade,
		patterns: []*regexp.Regexp{
			re(`\b(?P<num>`, timeValue, `)\s*(?P<unit>`, timeUnit, `)\s+fade[\s-]?(?P<type>in|out)\b`),
			re(`\bfade[\s-]?(?P<type>in\s+and\s+out|in\s+out|in|out)\b`,
				`(?:.*?\b(?P<num>`, timeValue, `)\s*(?P<unit>`, timeUnit, `)\b)?`),
			re(`\bfade\s+(?:it|the\s+(?:audio|track|song|clip|recording))\s+(?P<type>in|out)\b`),
		},
		extract: extractFade,
	},
	{
		kind: command.KindNormalize,
		patterns: []*regexp.Regexp{
			re(`\bnormali[sz]e(?:\s+(?:the\s+)?(?:audio|track|song|file|recording|volume|gain|loudness|levels?|it|this))?`,
				`(?:\s+(?:to|at)\s+(?P<num>`, signedNum, `)\s*`, dbUnit, `?)?`),
		},
		extract: extractNormalize,
	},
	{
		kind: command.KindNoiseReduction,
		patterns: []*regexp.Regexp{
			re(`\b(?:remove|reduce|eliminate|clean\s+up|get\s+rid\s+of|cut|kill|suppress|filter\s+out|take\s+out|lower)`,
				`\s+(?:the\s+|some\s+|all\s+)?(?:background\s+)?(?P<noise>noise|hum|hiss|buzz|static|clicks?|crackle|wind)\b`,
				`(?:.*?\bby\s+(?P<num>`, num, `)\s*`, pctUnit, `)?`),
			re(`\b(?:denoise|de-noise|noise\s+reduction|noise\s+removal|clean\s+up\s+(?:the\s+)?(?:audio|recording|track|sound)|clean\s+(?:the\s+)?(?:audio|recording|sound))\b`,
				`(?:.*?\b(?P<num>`, num, `)\s*`, pctUnit, `)?`),
		},
		extract: extractNoiseReduction,
	},
	{
		kind: command.KindEqualize,
		patterns: []*regexp.Regexp{
			re(`\b(?P<verb>boost|increase|raise|add|enhance|cut|reduce|lower|decrease|remove|attenuate)`,
				`\s+(?:some\s+|more\s+|the\s+)?(?P<band>bass|low\s+end|lows|low\s+frequencies|mids?|midrange|middle|treble|highs|high\s+end|high\s+frequencies)\b`,
				`(?:\s+by\s+(?P<num>`, signedNum, `)\s*`, dbUnit, `)?`),
			re(`\b(?P<verb>more|less)\s+(?P<band>bass|treble|mids?|highs|lows)\b`),
			re(`\b(?P<verb>boost|cut|eq|raise|lower|increase|reduce)\s+(?:at\s+)?(?P<freq>`, num, `)\s*(?P<funit>`, freqUnit, `)\b`,
				`(?:\s+by\s+(?P<num>`, signedNum, `)\s*`, dbUnit, `)?`),
		},
		extract: extractEqualize,
	},
	{
		kind: command.KindReverb,
		patterns: []*regexp.Regexp{
			re(`\b(?:add|apply|put|give\s+it|use)\s+(?:some\s+|a\s+little\s+|a\s+bit\s+of\s+|more\s+|a\s+|an\s+)?`,
				`(?:(?P<room>small|medium|large|big|room|concert\s+hall|hall|plate|church|cathedral|chamber)\s+)?reverb\b`,
				`(?:.*?\b(?P<num>`, num, `)\s*`, pctUnit, `)?`),
			re(`\bmake\s+it\s+sound\s+(?:like\s+)?(?:it\s+is\s+|its\s+)?(?:in\s+)?(?:a\s+)?(?P<room>hall|church|cathedral|room|chamber)\b`),
			re(`\breverb\b(?:.*?\b(?P<num>`, num, `)\s*`, pctUnit, `)?`),
		},
		unless:  removal(`reverb`),
		extract: extractReverb,
	},
	{
		kind: command.KindDelay,
		patterns: []*regexp.Regexp{
			re(`\b(?:add|apply|put)\s+(?:an?\s+)?(?:(?P<num>`, num, `)\s*(?P<unit>`, timeUnit, `)\s+)?(?:delay|echo)\b`),
			re(`\b(?:delay|echo)\b(?:\s+(?:of|at|with)\s+(?P<num>`, num, `)\s*(?P<unit>`, timeUnit, `)\b)?`),
		},
		unless:  removal(`delay|echo`),
		extract: extractDelay,
	},
	{
		kind: command.KindCompress,
		patterns: []*regexp.Regexp{
			re(`\b(?:compress|compression|compressor)\b`),
			re(`\b(?:even\s+out|tame|control|squash|smooth\s+out)\s+(?:the\s+)?(?:dynamics|peaks|levels)\b`),
		},
		extract: extractCompress,
	},
	{
		kind: command.KindConvert,
		patterns: []*regexp.Regexp{
			re(`\b(?:convert|export|save|transcode|render|encode)\b.*?\b(?:to|as|in)\s+(?:an?\s+)?(?:mp3|wav|wave|flac|ogg|vorbis|aac|m4a|opus|aiff|aif)\b`),
			re(`\b(?:convert|make|turn|change|mix\s+down|downmix|export)\b.*?\b(?:mono|stereo)\b`),
			re(`\b(?:resample|convert|change\s+(?:the\s+)?sample\s+rate|set\s+(?:the\s+)?sample\s+rate)\b.*?\b`, num, `\s*`, freqUnit, `\b`),
		},
		extract: extractConvert,
	},
	{
		kind: command.KindAnalyze,
		patterns: []*regexp.Regexp{
			re(`\b(?:analy[sz]e|analysis|inspect|measure|examine)\b`),
			re(`\b(?:whats|what\s+is|show|tell\s+me|get|report)\s+(?:me\s+)?(?:the\s+)?`,
				`(?:loudness|levels?|peak|duration|length|info|information|details|stats|statistics|format|sample\s+rate)\b`),
		},
		extract: func(captures) ([]command.Parameter, error) { return nil, nil },
	},
}

// Secondary scanners used by extractors that read more than their matching pattern captured
var (
	feedbackRe   = re(`(?:\b(?P<a>`, num, `)\s*`, pctUnit, `\s+feedback\b|\bfeedback\s+(?:of\s+|at\s+)?(?P<b>`, num, `)\s*`, pctUnit, `?)`)
	ratioRe      = re(`(?:\b(?P<a>`, num, `)\s*(?::|to)\s*1\b|\bratio\s+(?:of\s+)?(?P<b>`, num, `)\b)`)
	thresholdRe  = re(`(?P<a>`, signedNum, `)\s*`, dbUnit, `\b`)
	formatRe     = re(`\b(?P<a>mp3|wav|wave|flac|ogg|vorbis|aac|m4a|opus|aiff|aif)\b`)
	channelsRe   = re(`\b(?P<a>mono|stereo)\b`)
	sampleRateRe = re(`\b(?P<a>`, num, `)\s*(?P<b>`, freqUnit, `)\b`)
)
