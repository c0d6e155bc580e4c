package main

const verdictAdjudicationPrompt = `You label comments from the r/AmItheAsshole subreddit.

You will be given a JSON payload with the submission title and one top-level comment.
Decide which judgement the commenter gives, if any:
- YTA: the original poster is in the wrong ("You're the Asshole")
- NTA: the original poster is not in the wrong ("Not the Asshole")
- ESH: everyone involved is in the wrong ("Everyone Sucks Here")
- NAH: nobody is in the wrong ("No Assholes Here")
- none: the comment gives no judgement (questions, jokes, off-topic replies)

Rules:
- Judge what the commenter concludes, not words they quote or negate ("not YTA" is NTA).
- If several judgements appear, pick the one the commenter settles on.
- Keep the rationale to one short sentence.

Return only JSON matching the schema.`
