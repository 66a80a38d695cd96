package sandbox

// StrategyTemplate returns a starting point for writing strategies.
//
// A strategy is a JavaScript function named "strategy" taking the bar window
// and a persistent state object, returning an object with a "signal" key
// ("buy", "sell", "flat", "hold" or "none") plus optional numeric "size",
// "stop_loss" and "take_profit" fields. Stop-loss values below 1 are
// multipliers on the entry price; take-profit multipliers lie in (1, 2].
func StrategyTemplate() string {
	return `function strategy(data, state) {
    // data: {open, high, low, close, volume, dates, length}
    // state: plain object persisted between calls

    if (data.length < 50) {
        return {signal: 'none'};
    }

    var sma20 = sma(data.close, 20);
    var sma50 = sma(data.close, 50);

    if (state.prevSma20 === undefined) {
        state.prevSma20 = sma20;
        state.prevSma50 = sma50;
        return {signal: 'none'};
    }

    var prevSma20 = state.prevSma20;
    var prevSma50 = state.prevSma50;

    state.prevSma20 = sma20;
    state.prevSma50 = sma50;

    if (prevSma20 <= prevSma50 && sma20 > sma50) {
        return {
            signal: 'buy',
            stop_loss: 0.98,   // 2% stop loss
            take_profit: 1.10  // 10% take profit
        };
    } else if (prevSma20 >= prevSma50 && sma20 < sma50) {
        return {signal: 'sell'};
    }

    return {signal: 'none'};
}
`
}
